// Package settings loads the optional harness settings file.
//
// The file is YAML. Every key is optional; absent keys keep the values from
// Default, which reproduce the fixed behavior of the harness:
//
//	endpoint:
//	  source: /app/frontend/.env
//	  key: EXPO_PUBLIC_BACKEND_URL
//	supervisor:
//	  runner: ssh
//	  ssh:
//	    host: app.internal
//	    user: deploy
//	    key_file: /etc/smokecheck/id_ed25519
//	timeouts:
//	  http: 5s
//	report:
//	  format: json
//
// Unknown keys are rejected so typos do not silently fall back to defaults.
package settings
