// Package loader reads blueprint trees from YAML or JSON documents.
//
// A document is one node:
//
//	class: Frame
//	props:
//	  Text: A
//	  Width: {spring: {target: 200, from: 0}}
//	  "@log": {tag: root}
//	  "on:Activated": print
//	children:
//	  - class: Label
//	    key: Title
//	    props: {Text: B}
//
// Props is a single ordered mapping and its order is preserved. Keys
// starting with "@" name a plugin and carry its config; keys starting with
// "on:" bind a signal to a named handler. Plugins and handlers are resolved
// through a Registry. Every other key is a property; a mapping with a single
// "spring" key becomes an animation goal.
//
// Documents are read from files, from standard input ("-"), or from S3
// ("s3://bucket/key"). Watch reloads a file when it changes.
package loader
