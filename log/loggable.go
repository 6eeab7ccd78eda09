// Copyright 2017 The cascade Authors
// This file is part of the cascade library.
//
// The cascade library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The cascade library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the cascade library. If not, see <http://www.gnu.org/licenses/>.

package log

import (
	"fmt"
	"sync"
)

// Loggable buffers non-fatal warnings raised by a component, distinct from
// errors, which surface immediately as a FAIL. Any component that wants
// this bookkeeping embeds a Loggable.
type Loggable struct {
	mu       sync.Mutex
	warnings []string
}

// Warn appends a buffered warning.
func (l *Loggable) Warn(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

// Warnings returns and clears the buffered warnings.
func (l *Loggable) Warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.warnings
	l.warnings = nil
	return out
}
