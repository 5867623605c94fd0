package app

import (
	"log"
	"mime"
)

// Minimal container images ship without /etc/mime.types; without this the
// embedded stylesheet would be served as text/plain and browsers would
// refuse to apply it.
func init() {
	registerMimeType(".css", "text/css; charset=utf-8")
}

func registerMimeType(ext, typ string) {
	if mime.TypeByExtension(ext) != "" {
		return
	}
	if err := mime.AddExtensionType(ext, typ); err != nil {
		log.Printf("app: register mime type %s: %v", ext, err)
	}
}
