// Package binding holds the declarative binding table consulted by the
// injection engine.
//
// A Registry maps a source type (usually an interface) to an ordered list of
// Descriptors. Each Descriptor names what satisfies the source type (a
// concrete target type or a ready instance) and, optionally, under which
// conditions: an exact owner type, or a predicate over the owner type.
//
//	reg := binding.NewRegistry()
//	binding.For[Logger](reg).To(typeid.Of[*NetLogger]())
//	binding.ForOwner[Logger, Foo](reg).ToInstance(console)
//
// Resolve ranks the candidates of a source type for a given owner and
// returns the best one. Ranking reorders the stored list; the result for a
// given query is stable.
//
// Descriptors are recycled through a Pool. Release on a Registry returns
// every descriptor to its pool with all fields cleared.
package binding
