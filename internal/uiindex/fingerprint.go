package uiindex

import (
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/spigell/uiindex/internal/dom"
)

// FingerprintCap bounds how many visible elements feed the fingerprint.
const FingerprintCap = 500

var defaultScanner = NewScanner(nil)

// ComputeFingerprint hashes the (tag, role, text) sequence of the first
// FingerprintCap visible interactive elements of doc. Hidden elements and
// anything past the cap do not affect the result.
func ComputeFingerprint(doc dom.Document) string {
	return defaultScanner.Fingerprint(doc)
}

// Fingerprint is ComputeFingerprint using the scanner's logger.
func (s *Scanner) Fingerprint(doc dom.Document) string {
	var parts []string
	s.each(doc, FingerprintCap, func(p probe) bool {
		if p.visible {
			parts = append(parts, p.tag+":"+string(p.role)+":"+p.text)
		}
		return true
	})

	h := fnv.New32a()
	h.Write([]byte(strings.Join(parts, "|")))
	return strconv.FormatUint(uint64(h.Sum32()), 36)
}
