package types

// Version is the application version. Overridden at build time with -ldflags.
var Version = "dev"

// DefaultUserAgent is sent on manifest and registry fetches. Some GitLab hosts reject
// requests that look like stock HTTP clients.
const DefaultUserAgent = "carrot (https://github.com/m-mizutani/carrot)"
