package sqlite

const schema = `
CREATE TABLE IF NOT EXISTS product (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    project_id TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS processorder (
    id INTEGER PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS productionplan (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    project_id TEXT NOT NULL,
    meta TEXT,
    hierarchy TEXT NOT NULL,
    product INTEGER NOT NULL REFERENCES product(id),
    process_order INTEGER NOT NULL REFERENCES processorder(id),
    start_time TEXT NOT NULL,
    end_time TEXT NOT NULL,
    planned_quantity INTEGER NOT NULL,
    oee_target INTEGER NOT NULL,
    performance_target INTEGER NOT NULL,
    availability_target INTEGER NOT NULL,
    quality_target INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS productionplan_lookup
    ON productionplan (product, hierarchy, start_time, end_time);
CREATE TRIGGER IF NOT EXISTS productionplan_no_overlap
BEFORE INSERT ON productionplan
WHEN EXISTS (
    SELECT 1 FROM productionplan p
    WHERE p.product = NEW.product
      AND p.hierarchy = NEW.hierarchy
      AND p.end_time >= NEW.start_time
      AND p.start_time <= NEW.end_time
)
BEGIN
    SELECT RAISE(ABORT, 'productionplan overlap');
END;
`

// overlapMessage is raised by the productionplan_no_overlap trigger.
const overlapMessage = "productionplan overlap"

// timeLayout is the textual timestamp format stored in the plan table. It
// sorts lexically in chronological order.
const timeLayout = "2006-01-02 15:04:05"
