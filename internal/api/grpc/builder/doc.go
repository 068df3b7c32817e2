// Package builder implements the gRPC transport of the render API.
//
// The service exchanges protobuf well-known types: the request is a
// google.protobuf.Struct describing the build, the response a
// google.protobuf.StringValue holding the rendered script.
package builder
