package api

const (
	// PingEndpoint is the endpoint for checking the API status
	PingEndpoint = "/ping"
	// LayoutsEndpoint lists the parameter set and the layouts of the
	// families served
	LayoutsEndpoint = "/layouts"

	E3URLParam     = "e3ID"
	FamilyURLParam = "family"
	IndexURLParam  = "index"

	// WrapEndpoint is the endpoint for submitting the base proofs of a family
	WrapEndpoint = "/e3s/{" + E3URLParam + "}/wrap"
	// OutputsEndpoint lists the outputs of a family, ?family= is required
	OutputsEndpoint = "/e3s/{" + E3URLParam + "}/outputs"
	// RootEndpoint returns the fold root of a family, ?family= is required
	RootEndpoint = "/e3s/{" + E3URLParam + "}/root"
	// RegistryProofEndpoint returns the registry inclusion proof of an
	// output, ?family= is required
	RegistryProofEndpoint = "/e3s/{" + E3URLParam + "}/outputs/{" + IndexURLParam + "}/proof"
)
