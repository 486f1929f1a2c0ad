package main

// @title           PolicyLens API
// @version         1.0
// @description     Privacy policy analysis API. PolicyLens fetches a policy page, extracts its text and stores a versioned AI analysis.

// @contact.name   PolicyLens OSS
// @contact.url    https://github.com/custodia-labs/policylens/issues

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Format: "Bearer {token}"

var version = "dev"

func main() {
	Execute()
}
