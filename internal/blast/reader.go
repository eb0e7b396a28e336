package blast

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// maxLine bounds one row; qseq can hold a whole allele.
const maxLine = 64 << 20

// Read parses every row of r. Blank lines and '#' comment lines are skipped.
// The first malformed row aborts with a "name:line" error.
func Read(r io.Reader, name string) ([]Row, error) {
	var rows []Row
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLine)
	ln := 0
	for sc.Scan() {
		ln++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" || line[0] == '#' {
			continue
		}
		row, err := ParseRow(line, ln)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", name, ln, err)
		}
		if _, _, err := SplitSubjectID(row.SubjectID); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", name, ln, err)
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return rows, nil
}
