package config

// StarterTemplate is written by 'mvnops init'.
const StarterTemplate = `version: 0

maven:
  invoker:
    # local_repository: ~/.m2/repository
    # maven_home: /opt/maven
    batch_mode: true
    threads: 1
    reactor_failure_behavior: fail-fast
    global_checksum_policy: warn
    # timeout: 30m
    # profiles: [release]
    # properties:
    #   skipTests: "true"
    # local_repositories:
    #   scratch: /tmp/m2-scratch

credentials:
  stores:
    env:
      type: env
      prefix: MVNOPS_
  servers: {}
    # releases:
    #   username: {store: env, key: NEXUS_USER}
    #   password: {store: env, key: NEXUS_PASSWORD}

history:
  backend: file

metrics:
  job: mvnops
  # textfile: /var/lib/node_exporter/textfile_collector/mvnops.prom
  # pushgateway_url: http://localhost:9091
`
