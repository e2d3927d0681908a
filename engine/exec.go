// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"os"
	"os/exec"
)

// buildRedirected points cmd's stdout at a freshly created file at
// path: the alignment tool's --ryo output is written straight to disk
// for align.ParseFile to read back after the scheduler barrier.
func buildRedirected(cmd *exec.Cmd, path string) (*exec.Cmd, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	cmd.Stdout = f
	return cmd, nil
}
