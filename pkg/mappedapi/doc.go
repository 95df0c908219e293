// Package mappedapi turns a declarative resource mapping into a navigable
// REST client.
//
// # Overview
//
// A Mapping is a tree keyed by resource and action names. Interior nodes are
// nested mappings; leaves are Endpoint descriptors carrying a verb, literal
// path segments (endpoint_base), path parameter names (endpoint_ids) and an
// optional list of required arguments:
//
//	dogs:
//	  shibes:
//	    get:
//	      endpoint_base: [dogs, shibes]
//	      endpoint_ids: [dog_id]
//	      verb: get
//	    post:
//	      endpoint_base: [dogs, shibes]
//	      endpoint_ids: [dog_id]
//	      required_args: [name]
//	      verb: post
//
// A Deployment supplies what the mapping cannot: the base URL and the
// headers (authorization included) for each call.
//
// Getting a client
//
//	mapping, err := mappedapi.LoadMappingFile("mapping.yml")
//	if err != nil { log.Fatal(err) }
//
//	cli, err := mappedapi.New(&mappedapi.Config{
//	  Mapping:    mapping,
//	  Deployment: deployment,
//	  Auth:       mappedapi.Auth{"token": "secret"},
//	  Transport:  transport,
//	})
//	if err != nil { log.Fatal(err) }
//
// Most applications use the restclient package instead, which wires a
// bearer-token deployment and the default HTTP transport from a config file.
//
// # Resolving and calling
//
// Resolve walks one level at a time; Path accepts a dotted path:
//
//	shibes, err := cli.Resolve("dogs")
//	get, err := shibes.Path("shibes.get")
//	resp, err := get.Call(ctx, mappedapi.Args{"dog_id": "1"})
//
// The request above is GET {base}/dogs/1/shibes. Base segments and id values
// alternate; an id missing from the arguments is skipped, which shortens the
// path rather than failing.
//
// # Errors
//
// Every failure is distinguishable with errors.Is or the IsXxx helpers:
// UnknownResourceError for names absent from the mapping, ValidationError
// for missing required arguments (raised before any I/O), RequestError for
// responses with status >= 300 (its message never includes the
// Authorization header), and ConfigurationError for unset deployment pieces.
// The dispatcher never retries; retries are Transport configuration.
package mappedapi
