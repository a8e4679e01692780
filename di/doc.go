// Package di injects values into the members of Go objects according to the
// rules of a binding.Registry.
//
// An Engine asks a Discoverer for the injection points of an owner type,
// resolves each point's type against the registry with the owner type as
// context, and assigns what the winning rule materializes: a bound instance
// (itself injected first) or a freshly built and injected target. Every
// injected instance is tracked so SwitchContext can re-inject it against
// another registry.
//
// # Discovery
//
// Scanner finds struct fields tagged `inject:""` and methods named
// Inject<Something> by reflection. Manifest declares members explicitly:
//
//	m := di.NewManifest().
//	    Add(typeid.Of[Service](), di.FieldMember("Log", func(s *Service) *Logger { return &s.Log }))
//
// # Usage
//
//	reg := binding.NewRegistry()
//	binding.ForOwner[Logger, Service](reg).To(reflect.TypeOf(&NetLogger{}))
//
//	engine, _ := di.New(reg)
//	svc := di.MustMake[*Service](engine)
//
//	engine.SwitchContext(other, true)
package di
