package cmd

import (
	"fmt"

	"github.com/mverel/guildmaster/pkg/version"
)

const bannerText = `
  ____       _ _     _
 / ___|_   _(_) | __| |
| |  _| | | | | |/ _` + "`" + ` |
| |_| | |_| | | | (_| |
 \____|\__,_|_|_|\__,_|

   Guildmaster Task Orchestration
`

// Banner returns the CLI banner string.
func Banner() string {
	return fmt.Sprintf("%s\n  Version: %s\n", bannerText, version.Get().String())
}
