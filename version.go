// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package bitfield

import (
	"fmt"
	"runtime/debug"
)

// Version returns the module version and,
// if available, the VCS revision and time
// the binary was built from.
func Version() (string, bool) {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "", false
	}
	rev, hasRev := setting(bi, "vcs.revision")
	date, hasDate := setting(bi, "vcs.time")
	switch {
	case hasRev && hasDate:
		return fmt.Sprintf("%s (date: %s, revision: %s)", bi.Main.Version, date, rev), true
	case hasRev:
		return fmt.Sprintf("%s (revision: %s)", bi.Main.Version, rev), true
	case bi.Main.Version != "":
		return bi.Main.Version, true
	}
	return "", false
}

func setting(bi *debug.BuildInfo, key string) (string, bool) {
	for i := range bi.Settings {
		if bi.Settings[i].Key == key {
			return bi.Settings[i].Value, true
		}
	}
	return "", false
}
