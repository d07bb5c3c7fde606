// Package trustroots holds the immutable, process-wide TPM root
// certificate store (spec.md §5, §6). It is an external collaborator, not
// part of the verification engine: spec.md §1 scopes chain validation to
// the trust anchors out of the core, and tpmattest never imports this
// package. A caller uses trustroots.Pool() to validate the trust path
// tpmattest.Verify returns.
package trustroots

import (
	"crypto/x509"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"sync"
)

//go:embed root-certs/tpm
var embedded embed.FS

const rootDir = "root-certs/tpm"

// Root is one embedded trust anchor: the vendor tag taken from its leading
// path segment (spec.md §6), and the parsed certificate.
type Root struct {
	Vendor string
	Cert   *x509.Certificate
}

var (
	once      sync.Once
	roots     []Root
	pool      *x509.CertPool
	initError error
)

func load() {
	pool = x509.NewCertPool()

	initError = fs.WalkDir(embedded, rootDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel := strings.TrimPrefix(p, rootDir+"/")
		vendor := rel
		if i := strings.IndexByte(rel, '/'); i >= 0 {
			vendor = rel[:i]
		}

		der, err := embedded.ReadFile(p)
		if err != nil {
			return fmt.Errorf("trustroots: reading %s: %w", p, err)
		}

		cert, err := x509.ParseCertificate(der)
		if err != nil {
			return fmt.Errorf("trustroots: parsing %s: %w", p, err)
		}

		roots = append(roots, Root{Vendor: vendor, Cert: cert})
		pool.AddCert(cert)
		return nil
	})
}

func init() {
	once.Do(load)
}

// Pool returns the immutable process-wide certificate pool of embedded TPM
// root certificates, or an error if any embedded file failed to parse at
// initialization (spec.md §5: "if construction fails for any file,
// initialization fails; it is never re-loaded or mutated").
func Pool() (*x509.CertPool, error) {
	once.Do(load)
	if initError != nil {
		return nil, initError
	}
	return pool, nil
}

// Roots returns the individual embedded roots with their vendor tags, for
// callers that want to report which vendor's root validated a chain.
func Roots() ([]Root, error) {
	once.Do(load)
	if initError != nil {
		return nil, initError
	}
	return roots, nil
}

