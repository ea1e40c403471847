// Package discovery advertises and finds OPC UA endpoints over mDNS.
//
// Servers announce themselves as _opcua-tcp._tcp instances with the
// endpoint path and capability list carried in TXT records, the multicast
// extension of local discovery. Browsing is the inverse: it resolves
// announced instances back into endpoint URLs a client can connect to.
package discovery
