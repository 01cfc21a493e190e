package tensor

// F32 is the concrete tensor instantiation used by pipeline-level
// packages: float32 elements over the Backend interface. Those
// packages vary the backend by value (CPU vs the tracing decorator),
// not by type parameter.
type F32 = Tensor[float32, Backend]
