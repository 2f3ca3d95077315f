// Package config provides configuration parsing for the blueprint CLI.
//
// The configuration is stored in blueprint.json. Missing fields take their
// defaults; Validate checks the result against the struct's validation tags.
//
// # Configuration File Structure
//
//	{
//	  "log": {"level": "debug", "format": "json"},
//	  "serve": {"host": "0.0.0.0", "port": 7420},
//	  "metrics": {"enabled": true, "namespace": "blueprint"},
//	  "spring": {"stiffness": 170, "damping": 26},
//	  "classes": {
//	    "Frame": {
//	      "properties": {"Text": "string", "Width": "number"},
//	      "signals": ["Activated"]
//	    }
//	  },
//	  "s3": {"region": "eu-west-1"}
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
//	h := host.NewMemory(cfg.HostOptions()...)
package config
