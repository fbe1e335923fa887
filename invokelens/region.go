package invokelens

import "os"

const defaultRegion = "us-east-1"

// detectRegion returns the AWS region to stamp onto emitted events, read
// from AWS_DEFAULT_REGION the way the host application's own AWS SDK
// client would resolve it, falling back to defaultRegion if unset.
func detectRegion() string {
	if r, ok := os.LookupEnv("AWS_DEFAULT_REGION"); ok && r != "" {
		return r
	}
	return defaultRegion
}
