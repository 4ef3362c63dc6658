/*
Copyright © 2023 Jeff Berkowitz (pdxjjb@gmail.com)

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package plc

import (
	"fmt"
	"strings"
)

const Name = "plc"

var Version = "0.9"

// Revision is expanded by the version control system on checkout and
// may be replaced at link time:
//
//	go build -ldflags "-X github.com/rxell/phantomuserland/pkg/plc.Revision=1234"
var Revision = "$Revision: 1 $"

// VersionLine is the text printed for --version.
func VersionLine() string {
	return fmt.Sprintf("%s version %s rev %s", Name, Version, cleanRevision(Revision))
}

// Strip the keyword expansion decoration from a revision string.
func cleanRevision(rev string) string {
	rev = strings.TrimSpace(rev)
	rev = strings.ReplaceAll(rev, "$", "")
	rev = strings.ReplaceAll(rev, "Revision:", "")
	return strings.TrimSpace(rev)
}
