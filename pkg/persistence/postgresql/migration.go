package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflows (
				id VARCHAR(128) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				document JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflows_created_at ON workflows(created_at);
		`,
		2: `
			-- Node types referenced by each workflow, for lookups by type.
			ALTER TABLE workflows ADD COLUMN node_types TEXT[] NOT NULL DEFAULT '{}';

			CREATE INDEX idx_workflows_node_types ON workflows USING GIN (node_types);
		`,
	}
}
