// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
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

//go:build linux

package detection

import "golang.org/x/sys/unix"

// PathAccessible reports whether the current process can open path for
// read and write. Opening the node is the only way a probe can work, so
// inaccessible nodes are filtered out before probing.
func PathAccessible(path string) bool {
	return unix.Access(path, unix.R_OK|unix.W_OK) == nil
}
