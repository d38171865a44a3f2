// Package session holds the live state of a converter form.
//
// A Session owns the four user inputs (value text, source unit, target
// unit, region) and the output derived from them. Every mutator
// recomputes the output before returning, so a State read from a Session
// always reflects its latest inputs.
//
// The Manager keeps sessions in memory, keyed by UUID, and expires those
// left idle longer than the configured TTL. Nothing is persisted.
//
// Usage:
//
//	mgr := session.NewManager(registry, session.Options{IdleTTL: 30 * time.Minute})
//	go mgr.Run(ctx, time.Minute)
//
//	s, _ := mgr.Create()
//	s.SetInput("2")
//	st := s.Swap()
//	fmt.Println(st.Output)
package session
