// Package store is a minimal client for the snap store dashboard API.
//
// It resolves snap names to their store identity and downloads the
// snap.yaml of a revision. Requests are authenticated with the macaroons
// exported by "snapcraft export-login" in SNAPCRAFT_STORE_CREDENTIALS.
//
// When ALL_PROXY is set, connections go through the proxy it names
// (socks5:// is supported), honouring NO_PROXY.
package store
