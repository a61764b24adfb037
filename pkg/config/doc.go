// Package config loads the pointaudit configuration file.
//
// The file is YAML. Every section is optional; omitted values keep the
// factory defaults returned by Default. A loaded configuration is
// validated with struct tags before use:
//
//	inputs:
//	  dbid: ./export/DBID.imp
//	  graphics_dir: ./graphics
//	  logic_dir: ./logic
//	  historian: ./HistorianConfig.xml
//	  encoding: windows-1251
//	rules:
//	  characteristics: {mask: "?-------", compare_equal: false}
//	  ancillary:
//	    DROP: {enabled: true, field: ANC_5}
//	  alarm_priorities:
//	    LOW_ALARM_PRIORITY_1: {enabled: true, value: 2}
//	  background:
//	    ignored_issues: ["Macro 12"]
//	report:
//	  database: ./pointaudit.db
//
// Relative input paths are resolved against the directory of the file.
package config
