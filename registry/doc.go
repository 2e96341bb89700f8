/*
Package registry resolves model types by name and holds per-type DynamoDB key
templates.

Type Registry:
Maps model names used in configuration files to declared model types:

	registry.Register[*User]("user")
	model, err := registry.LookupType("user")

Index Map Registry:
Associates model types with DynamoDB key patterns:

	registry.RegisterIndexMap[*User](map[string]string{
	    "PK": "USER#{id}",
	    "SK": "USER#{id}",
	})

The registry is thread-safe and should be populated during initialization,
typically in init() functions.
*/
package registry
