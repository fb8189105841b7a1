// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ternarybob/loraforge/internal/common"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("loraforge version %s\n", common.LoadVersionFromFile())
	},
}
