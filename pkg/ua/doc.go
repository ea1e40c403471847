// Package ua defines the OPC UA service vocabulary shared by the server
// core: status codes, node identifiers, data values, and the decoded
// request/response types routed by the message handler.
//
// The package is pure data. Wire encoding and decoding of these types is the
// transport layer's job and is not part of this module; the types here are
// the boundary contract between the transport and the service layer.
package ua
