// Package platform contains OS integration and external tooling glue:
// filename sanitization, directory and file helpers, opening finished files
// with the default application, and playlist expansion.
package platform
