//go:build !sanitycheck

package pool

// SanityCheck is a no-op outside the sanitycheck build: walking every
// structural invariant is O(n) and only worth paying for under the
// sanitycheck tag (property tests, CI). Production builds get this stub
// so the opt-in Pool.SanityCheck() call is always present at the call
// site without charging normal builds for the walk.
func (p *Pool[V, C, S]) SanityCheck() error {
	return nil
}
