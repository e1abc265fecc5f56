package optional

// RegisterAll installs the full reference optional-module set (Math,
// File, Json, Http, Env) into a VM, mirroring how the original gravity
// command-line tool links every src/optionals/*.c unit into its
// embedder rather than shipping them as separate opt-in libraries.
func RegisterAll(h Host) {
	h.DefineClass(NewMathClass(h))
	h.DefineClass(NewFileClass(h))
	h.DefineClass(NewJsonClass(h))
	h.DefineClass(NewHttpClass(h))
	h.DefineClass(NewEnvClass(h))
}
