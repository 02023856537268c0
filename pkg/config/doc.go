// Package config loads the optional kcdutil configuration file.
//
//	            +-------------+
//	            |   Config    |
//	            | (defaults)  |
//	            +------+------+
//	                   |
//	      +------------+------------+
//	      |            |            |
//	+-----+----+ +-----+----+ +-----+----+
//	|   YAML   | |   HCL    | |   JSON   |
//	|  Parser  | |  Parser  | |  Parser  |
//	+----------+ +----------+ +----------+
//
// 🎯 Purpose:
// - Supplies defaults for --mode, --overwrite and --progress
// - Names the history file executed plans are appended to
// - Configures how video folders are carried (ignore globs, unlisted entries)
//
// 🔄 Flow:
// 1. --config names a file, or the first of DefaultFiles in the working directory is used
// 2. The parser is picked by file extension
// 3. Unknown fields are rejected
// 4. Validate fills defaults and resolves history_file relative to the config file
//
// Flags given on the command line always win over the file.
//
// Example (.kcdutil.hcl):
//
//	mode     = "copy"
//	progress = "never"
//	history_file = "kcdutil.log"
//
//	video {
//	  carry_unlisted = true
//	  ignore         = ["**/*.tmp", "Thumbs.db"]
//	}
package config
