// Package sdf streams compound records out of PubChem structure-data
// files and turns their CACTVS substructure fingerprints into the keyword
// terms the pubchem index scores with.
package sdf

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Record is a single molecule entry: the header name plus the associated
// data items. The connection table is skipped, only tagged data items are
// retained.
type Record struct {
	Name string
	Data map[string]string
}

// Get returns the first non empty data item among tags.
func (r *Record) Get(tags ...string) string {
	for _, tag := range tags {
		if v, ok := r.Data[tag]; ok && v != "" {
			return v
		}
	}
	return ""
}

const recordTerminator = "$$$$"

// maximum line length seen in PubChem dumps is well below this, but
// data items can carry long base64 payloads
const maxLine = 4 * 1024 * 1024

// ParseRecords streams records from r, invoking handle for each complete
// record. A record lacking the $$$$ terminator at EOF is discarded.
func ParseRecords(r io.Reader, handle func(*Record) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	rec := &Record{Data: make(map[string]string)}
	atHeader := true
	var tag string
	var value []string

	flushItem := func() {
		if tag != "" {
			rec.Data[tag] = strings.Join(value, "\n")
			tag = ""
			value = nil
		}
	}

	for scanner.Scan() {
		line := scanner.Text()

		if strings.TrimRight(line, " \r") == recordTerminator {
			flushItem()
			if err := handle(rec); err != nil {
				return err
			}
			rec = &Record{Data: make(map[string]string)}
			atHeader = true
			continue
		}

		if atHeader {
			rec.Name = strings.TrimSpace(line)
			atHeader = false
			continue
		}

		if strings.HasPrefix(line, ">") && strings.Contains(line, "<") {
			flushItem()
			tag = parseTag(line)
			continue
		}

		if tag != "" {
			if strings.TrimSpace(line) == "" {
				// blank line terminates a data item
				flushItem()
				continue
			}
			value = append(value, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "sdf scan failed")
	}
	return nil
}

func parseTag(line string) string {
	start := strings.Index(line, "<")
	end := strings.LastIndex(line, ">")
	if start < 0 || end <= start {
		return ""
	}
	return line[start+1 : end]
}
