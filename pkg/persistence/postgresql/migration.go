package postgresql

// migrations returns the schema versions applied by the migration manager.
func migrations() map[int]string {
	return map[int]string{
		1: schemaV1,
		2: seedV2,
	}
}

const schemaV1 = `
	CREATE TABLE IF NOT EXISTS business_rules (
		id BIGSERIAL PRIMARY KEY,
		rule_code VARCHAR(255) UNIQUE NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		conditions JSONB NOT NULL,
		action VARCHAR(50) NOT NULL,
		priority INTEGER NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		version VARCHAR(10) NOT NULL DEFAULT '1.0',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_business_rules_active_priority
		ON business_rules (active, priority);

	CREATE TABLE IF NOT EXISTS workflow_definitions (
		id BIGSERIAL PRIMARY KEY,
		tenant_id BIGINT NOT NULL DEFAULT 1,
		entity_type VARCHAR(50) NOT NULL,
		from_state VARCHAR(50) NOT NULL,
		to_state VARCHAR(50) NOT NULL,
		allowed_role VARCHAR(50) NOT NULL DEFAULT '',
		approval_required BOOLEAN NOT NULL DEFAULT FALSE,
		approver_role VARCHAR(50) NOT NULL DEFAULT '',
		UNIQUE (tenant_id, entity_type, from_state, to_state)
	);

	CREATE TABLE IF NOT EXISTS workflow_requests (
		id UUID PRIMARY KEY,
		tenant_id BIGINT NOT NULL DEFAULT 1,
		entity_type VARCHAR(50) NOT NULL,
		entity_id VARCHAR(255) NOT NULL,
		project_id VARCHAR(255),
		from_state VARCHAR(50) NOT NULL,
		to_state VARCHAR(50) NOT NULL,
		requested_by VARCHAR(255) NOT NULL,
		requested_by_role VARCHAR(50) NOT NULL DEFAULT '',
		approver_role VARCHAR(50) NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
		reason TEXT,
		meta JSONB,
		requested_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		responded_at TIMESTAMP WITH TIME ZONE,
		responded_by VARCHAR(255)
	);

	CREATE INDEX IF NOT EXISTS idx_workflow_req_tenant_entity
		ON workflow_requests (tenant_id, entity_type, entity_id);
	CREATE INDEX IF NOT EXISTS idx_workflow_req_status_role
		ON workflow_requests (status, approver_role);

	CREATE TABLE IF NOT EXISTS workflow_logs (
		id UUID PRIMARY KEY,
		request_id UUID NOT NULL,
		tenant_id BIGINT NOT NULL DEFAULT 1,
		entity_type VARCHAR(50) NOT NULL,
		entity_id VARCHAR(255) NOT NULL,
		action VARCHAR(100) NOT NULL,
		from_state VARCHAR(50),
		to_state VARCHAR(50),
		performed_by VARCHAR(255) NOT NULL,
		details JSONB,
		timestamp TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_workflow_log_tenant_entity
		ON workflow_logs (tenant_id, entity_type, entity_id);

	CREATE TABLE IF NOT EXISTS entity_states (
		tenant_id BIGINT NOT NULL DEFAULT 1,
		entity_type VARCHAR(50) NOT NULL,
		entity_id VARCHAR(255) NOT NULL,
		state VARCHAR(50) NOT NULL,
		locked BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		PRIMARY KEY (tenant_id, entity_type, entity_id)
	);
`

// seedV2 installs the default transition routing and the shipped business
// rules. Conflicts are ignored so operators can override either.
const seedV2 = `
	INSERT INTO workflow_definitions (tenant_id, entity_type, from_state, to_state, allowed_role, approval_required, approver_role)
	VALUES
		(1, 'TASK', 'IN_PROGRESS', 'REVIEW', 'Employee', TRUE, 'Manager'),
		(1, 'TASK', 'IN_PROGRESS', 'COMPLETED', 'Employee', TRUE, 'Manager'),
		(1, 'TASK', 'REVIEW', 'COMPLETED', 'Manager', TRUE, 'Manager'),
		(1, 'PROJECT', 'ACTIVE', 'CLOSED', 'Manager', TRUE, 'Admin')
	ON CONFLICT (tenant_id, entity_type, from_state, to_state) DO NOTHING;

	INSERT INTO business_rules (rule_code, description, conditions, action, priority, active, version)
	VALUES
		('ACCESS_OWN_RECORDS_ONLY', 'Users can only access their own records unless role is ADMIN',
			'{"userRole":{"$ne":"ADMIN"},"resourceOwnerId":{"$ne":"{{userId}}"}}', 'DENY', 1, TRUE, '1.0'),
		('ADMIN_FULL_ACCESS', 'Admins have full access',
			'{"userRole":"ADMIN"}', 'ALLOW', 2, TRUE, '1.0'),
		('EMPLOYEE_CANNOT_APPROVE_OWN_REQUEST', 'Employees cannot approve their own requests',
			'{"userRole":"EMPLOYEE","action":"APPROVE","resourceOwnerId":"{{userId}}"}', 'DENY', 3, TRUE, '1.0'),
		('LEAVE_DAYS_REQUIRE_APPROVAL', 'Leave days exceeding limit require manager approval',
			'{"action":"LEAVE_APPLY","leaveDays":{"$gt":"{{LEAVE_MAX_DAYS}}"}}', 'REQUIRE_APPROVAL', 4, TRUE, '1.0'),
		('APPROVED_RECORDS_IMMUTABLE', 'Approved or locked records cannot be modified',
			'{"action":{"$in":["UPDATE","DELETE"]},"recordStatus":{"$in":["APPROVED","LOCKED"]}}', 'DENY', 5, TRUE, '1.0'),
		('SALARY_NON_NEGATIVE', 'Salary and financial fields must not be negative',
			'{"action":{"$in":["CREATE","UPDATE"]},"payload":{"$or":[{"salary":{"$lt":0}},{"budget":{"$lt":0}},{"amount":{"$lt":0}}]}}', 'DENY', 6, TRUE, '1.0'),
		('OTP_RATE_LIMIT', 'Rate limit OTP requests',
			'{"action":"OTP_REQUEST","recentRequests":{"$gte":"{{OTP_MAX_REQUESTS}}"}}', 'DENY', 7, TRUE, '1.0'),
		('task_creation', 'Validate task creation permissions and data',
			'{"userRole":"MANAGER","action":"POST__TASKS_CREATEJSON","payload":{"title":{"$exists":true},"projectId":{"$exists":true}}}', 'ALLOW', 8, TRUE, '1.0'),
		('task_update', 'Validate task update permissions',
			'{"userRole":"MANAGER","action":"PUT_:ID"}', 'ALLOW', 9, TRUE, '1.0'),
		('task_reassign', 'Validate task reassignment permissions',
			'{"userRole":{"$in":["MANAGER","ADMIN"]},"action":"PATCH_:TASKID_REASSIGN_:USERID"}', 'ALLOW', 10, TRUE, '1.0'),
		('task_status_update', 'Validate task status update permissions',
			'{"userRole":{"$in":["EMPLOYEE","MANAGER","ADMIN"]},"action":"PATCH_:ID_STATUS"}', 'ALLOW', 11, TRUE, '1.0')
	ON CONFLICT (rule_code) DO NOTHING;
`
