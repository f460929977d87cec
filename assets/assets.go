package assets

// ServiceName identifies this process to the tracer and structured logs.
const ServiceName = "ngendika"
