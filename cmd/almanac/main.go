// Command almanac imports, exports and resets Almanac planner data.
package main

import "github.com/mesh-intelligence/almanac/internal/cli"

func main() {
	cli.Execute()
}
