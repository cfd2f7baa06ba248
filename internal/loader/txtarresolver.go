// Copyright 2026 The VeGen Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package loader

import (
	"fmt"

	"github.com/rogpeppe/go-internal/txtar"
)

// TxtarResolver resolves template paths against the files of a txtar
// archive, letting a whole multi-file <require> fixture live as one
// readable block of text in a test.
type TxtarResolver struct {
	files map[string]string
}

// NewTxtarResolver indexes every file in archive by its txtar-declared
// name, which loader test fixtures use directly as template paths.
func NewTxtarResolver(archive *txtar.Archive) *TxtarResolver {
	files := make(map[string]string, len(archive.Files))
	for _, f := range archive.Files {
		files[f.Name] = string(f.Data)
	}
	return &TxtarResolver{files: files}
}

func (r *TxtarResolver) Resolve(path string) (string, error) {
	text, ok := r.files[path]
	if !ok {
		return "", fmt.Errorf("no such template %q in archive", path)
	}
	return text, nil
}
