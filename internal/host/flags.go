package host

const usageTemplate = `NTB - A Hackable Build Generator
%s

Usage: %s [manifest path]

Options:
-h, --help       Show help
-v, --version    Show version
`

// collectFlags scans every argument for the global flags. Arguments are not
// consumed: the script still sees them through arg.
func collectFlags(args []string) (version, help bool) {
	for _, a := range args {
		switch a {
		case "-h", "--help":
			help = true
		case "-v", "--version":
			version = true
		}
	}
	return version, help
}
