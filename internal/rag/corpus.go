package rag

// IncidentCorpus is the built-in corpus of Guardian incident records used by
// the administrative ingest command. Each record's Content is embedded; Title
// and Metadata are stored as index payload alongside the vector.
var IncidentCorpus = []SourceRecord{
	{
		ID:      1,
		Title:   "Authentication Failure - Service Account Lockout",
		Content: "Service account lockout occurs when the Guardian service account exceeds the maximum allowed failed authentication attempts. This typically happens after password rotation or when cached credentials become stale. The resolution is to reset the service account password in Active Directory, clear the cached credentials on the application server, and restart the Guardian authentication service. Check Event Viewer for Event ID 4625 to confirm lockout events.",
		Metadata: map[string]string{
			"category":   "Authentication",
			"severity":   "High",
			"resolution": "Reset service account password, clear cached credentials, restart auth service.",
			"error_code": "AUTH-001",
		},
	},
	{
		ID:      2,
		Title:   "Database Connection Timeout - Spanner Vector Search",
		Content: "Spanner Vector Search connection timeouts happen when the database connection pool is exhausted or when network latency between the application tier and Spanner exceeds the configured timeout threshold of 30 seconds. Resolution: increase the connection pool size in the guardian-config.yaml file, check network routes between application servers and Spanner instances, and verify that the Spanner instance is not under heavy load. Monitor the connection_pool_exhausted metric in Grafana.",
		Metadata: map[string]string{
			"category":   "Database",
			"severity":   "Critical",
			"resolution": "Increase connection pool size, check network routes, verify Spanner load.",
			"error_code": "DB-002",
		},
	},
	{
		ID:      3,
		Title:   "API Gateway 503 Service Unavailable",
		Content: "A 503 Service Unavailable error from the Guardian API gateway indicates that the backend services are not responding. This can be caused by: (1) Backend pod crash loops in Kubernetes, (2) Health check failures, (3) Resource limits being exceeded. To troubleshoot: check pod status with kubectl get pods -n guardian, review pod logs with kubectl logs, verify resource requests and limits in the deployment manifest, and check if horizontal pod autoscaler is functioning correctly.",
		Metadata: map[string]string{
			"category":   "API",
			"severity":   "Critical",
			"resolution": "Check pod status, review logs, verify resource limits, check HPA.",
			"error_code": "API-503",
		},
	},
	{
		ID:      4,
		Title:   "Certificate Expiration Warning",
		Content: "Guardian TLS certificates are issued with a 1-year validity period. When certificates are within 30 days of expiration, the system generates alerts. To renew certificates: submit a certificate signing request (CSR) through the PKI portal, download the renewed certificate, update the Kubernetes secret with the new certificate and key, and perform a rolling restart of the affected deployments. Verify with openssl s_client -connect hostname:443.",
		Metadata: map[string]string{
			"category":   "Security",
			"severity":   "High",
			"resolution": "Submit CSR, download renewed cert, update K8s secret, rolling restart.",
			"error_code": "SEC-010",
		},
	},
	{
		ID:      5,
		Title:   "Memory Leak in Guardian Processor Service",
		Content: "The Guardian Processor service has a known memory leak issue when processing large batches of incident data exceeding 10,000 records. Memory usage gradually increases until the pod is OOMKilled. Workaround: set the BATCH_SIZE environment variable to 5000, configure memory limits to 4Gi with a request of 2Gi, and enable the memory profiler by setting ENABLE_MEM_PROFILER=true. A permanent fix is scheduled for release 4.2.1.",
		Metadata: map[string]string{
			"category":   "Performance",
			"severity":   "Medium",
			"resolution": "Reduce batch size to 5000, set memory limits, enable profiler.",
			"error_code": "PERF-005",
		},
	},
	{
		ID:      6,
		Title:   "User Guide and Documentation Access",
		Content: "Guardian user guides and documentation are available at the internal documentation portal. The portal contains: Getting Started guide, API reference documentation, Troubleshooting playbooks, Release notes, and Administrator configuration guides. Access requires valid network credentials. For access issues, contact the Guardian support team at " + SupportContact + ".",
		Metadata: map[string]string{
			"category":   "Documentation",
			"severity":   "Low",
			"resolution": "Visit the internal documentation portal.",
			"error_code": "DOC-001",
		},
	},
	{
		ID:      7,
		Title:   "Log Aggregation Pipeline Failure",
		Content: "The Guardian log aggregation pipeline uses Fluentd to collect logs from all microservices and forward them to Elasticsearch. Pipeline failures are typically caused by: Elasticsearch cluster health turning red, Fluentd buffer overflow, or network policies blocking traffic on port 9200. Resolution: check Elasticsearch cluster health with curl localhost:9200/_cluster/health, restart Fluentd DaemonSet, verify network policies allow egress to Elasticsearch, and check disk space on Elasticsearch nodes.",
		Metadata: map[string]string{
			"category":   "Logging",
			"severity":   "Medium",
			"resolution": "Check ES health, restart Fluentd, verify network policies, check disk.",
			"error_code": "LOG-003",
		},
	},
	{
		ID:      8,
		Title:   "Role-Based Access Control (RBAC) Permission Denied",
		Content: "RBAC permission denied errors occur when a user attempts to access a Guardian resource without the appropriate role assignment. Common scenarios: new users not added to correct AD groups, role mapping configuration out of date, or RBAC cache not refreshed. Resolution: verify user AD group membership, check role mappings in guardian-rbac-config.yaml, clear the RBAC cache by calling POST /api/admin/rbac/refresh, and review audit logs for denied access attempts.",
		Metadata: map[string]string{
			"category":   "Authorization",
			"severity":   "High",
			"resolution": "Verify AD groups, check role mappings, clear RBAC cache.",
			"error_code": "RBAC-007",
		},
	},
	{
		ID:      9,
		Title:   "Incident Data Sync Delay",
		Content: "Guardian incident data synchronization from source systems may experience delays exceeding the 15-minute SLA. Common causes include: source system API rate limiting, network congestion during peak hours, or the sync worker queue backlog exceeding 1000 items. Troubleshooting: check the sync worker queue depth in the Guardian admin dashboard, review source system API response times, verify the sync schedule in cron configuration, and check for any failed sync jobs in the job history.",
		Metadata: map[string]string{
			"category":   "Data Sync",
			"severity":   "Medium",
			"resolution": "Check queue depth, review API response times, verify cron schedule.",
			"error_code": "SYNC-004",
		},
	},
	{
		ID:      10,
		Title:   "Deployment Rollback Procedure",
		Content: "To perform a rollback of a Guardian deployment: (1) Identify the previous stable release version from the release history, (2) Execute kubectl rollout undo deployment/guardian-app -n guardian to revert to the previous version, (3) Verify the rollback with kubectl rollout status, (4) Run the smoke test suite, (5) Update the deployment tracker. For database migrations that need reversal, run the down migration to reverse the schema changes.",
		Metadata: map[string]string{
			"category":   "Deployment",
			"severity":   "High",
			"resolution": "kubectl rollout undo, verify status, run smoke tests.",
			"error_code": "DEPLOY-002",
		},
	},
	{
		ID:      11,
		Title:   "SSL Handshake Failure with Upstream Services",
		Content: "SSL handshake failures with upstream services typically occur when the upstream service updates its TLS configuration or when there is a certificate chain issue. Debug with: openssl s_client -connect upstream-host:443 -showcerts. Common fixes: update the CA bundle in the Guardian trust store, verify that the intermediate certificates are included in the chain, and check that TLS 1.2 or higher is configured. Update the trust store path in guardian-ssl-config.yaml.",
		Metadata: map[string]string{
			"category":   "Networking",
			"severity":   "High",
			"resolution": "Update CA bundle, verify cert chain, ensure TLS 1.2+.",
			"error_code": "NET-008",
		},
	},
	{
		ID:      12,
		Title:   "Kubernetes Pod CrashLoopBackOff",
		Content: "CrashLoopBackOff in Guardian pods indicates the container is repeatedly crashing. Most common causes: (1) Application startup failure due to missing configuration, (2) Database migration not applied, (3) Insufficient memory allocation, (4) Health check probe configured incorrectly. Debug steps: kubectl describe pod <pod-name> to see events, kubectl logs <pod-name> --previous to see crash logs, verify ConfigMaps and Secrets are mounted correctly, and check if init containers completed successfully.",
		Metadata: map[string]string{
			"category":   "Infrastructure",
			"severity":   "Critical",
			"resolution": "Check pod events, review crash logs, verify ConfigMaps/Secrets.",
			"error_code": "K8S-001",
		},
	},
}
