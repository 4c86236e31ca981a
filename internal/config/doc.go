// Package config loads morphd configuration.
//
// Configuration comes from an optional morph.yaml (or .json) file laid
// over the defaults, then from environment variables. Unknown keys are an
// error, and validation errors point at the offending line of the file.
//
// # Configuration File Structure
//
//	app: counter
//	server:
//	  addr: ":8080"
//	  title: morph
//	  read_timeout: 60s
//	  batch_delay: 0s
//	  checkpoint_interval: 30s
//	  trusted_proxies: [10.0.0.1]
//	  allowed_origins: ["https://example.com"]
//	session:
//	  max_sessions: 10000
//	  max_sessions_per_ip: 100
//	  resume_window: 5m
//	store:
//	  driver: redis # memory, redis or s3
//	  redis:
//	    addr: localhost:6379
//	    prefix: "morph:session:"
//	  s3:
//	    bucket: snapshots
//	    region: eu-west-1
//	    endpoint: http://minio:9000
//	    path_style: true
//	log:
//	  level: info
//	  format: json
//	metrics:
//	  namespace: morph
//
// # Environment
//
//   - MORPH_ADDR overrides server.addr
//   - MORPH_REDIS_ADDR selects the redis store at the given address
//   - MORPH_S3_BUCKET selects the s3 store with the given bucket
//   - AWS_REGION, AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY fill the
//     s3 section
//   - MORPH_LOG_LEVEL overrides log.level
//   - MORPH_APP overrides app
package config
