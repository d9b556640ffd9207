// github-metrics reports the yearly GitHub activity of the authenticated user.
//
// Usage:
//
//	GITHUB_TOKEN=<YOUR_TOKEN> github-metrics --year 2023 --year 2024
package main

import "github.com/naka-gawa/github-metrics/cmd"

func main() {
	cmd.Execute()
}
