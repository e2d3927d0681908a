// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package emit

import (
	"bufio"
	"strconv"
	"strings"
)

func writeTSV(w *bufio.Writer, fields []string) error {
	if _, err := w.WriteString(strings.Join(fields, "\t")); err != nil {
		return err
	}
	return w.WriteByte('\n')
}

func itoa(n int) string { return strconv.Itoa(n) }

func ftoa(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }
