package pgstore

const createCourses = `CREATE TABLE IF NOT EXISTS courses (
	course_id BIGSERIAL PRIMARY KEY,
	course_number TEXT UNIQUE NOT NULL,
	course_name TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const createPrerequisites = `CREATE TABLE IF NOT EXISTS prerequisites (
	prerequisite_id BIGSERIAL PRIMARY KEY,
	course_id BIGINT NOT NULL REFERENCES courses(course_id) ON DELETE CASCADE,
	prerequisite_course_id BIGINT NOT NULL REFERENCES courses(course_id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (course_id, prerequisite_course_id)
)`

const createCourseNumberIndex = `CREATE INDEX IF NOT EXISTS idx_course_number ON courses(course_number)`
const createPrereqCourseIndex = `CREATE INDEX IF NOT EXISTS idx_prerequisites_course ON prerequisites(course_id)`
const createPrereqTargetIndex = `CREATE INDEX IF NOT EXISTS idx_prerequisites_prereq ON prerequisites(prerequisite_course_id)`

const dropPrerequisites = `DROP TABLE IF EXISTS prerequisites`
const dropCourses = `DROP TABLE IF EXISTS courses`

const deletePrerequisites = `DELETE FROM prerequisites`
const deleteCourses = `DELETE FROM courses`

const insertCourse = `INSERT INTO courses (course_number, course_name) VALUES ($1, $2)`
const insertLinkByNumber = `INSERT INTO prerequisites (course_id, prerequisite_course_id)
	SELECT c.course_id, p.course_id FROM courses c, courses p
	WHERE c.course_number = $1 AND p.course_number = $2`
const insertLink = `INSERT INTO prerequisites (course_id, prerequisite_course_id) VALUES ($1, $2)`
const deleteLink = `DELETE FROM prerequisites WHERE course_id = $1 AND prerequisite_course_id = $2`

const updateCourse = `UPDATE courses SET course_name = $1, updated_at = now() WHERE course_number = $2`
const deleteCourse = `DELETE FROM courses WHERE course_number = $1`
const selectCourseID = `SELECT course_id FROM courses WHERE course_number = $1`
const countCourses = `SELECT COUNT(*) FROM courses`

const selectCourses = `SELECT c.course_number, c.course_name, p.course_number
	FROM courses c
	LEFT JOIN prerequisites l ON l.course_id = c.course_id
	LEFT JOIN courses p ON p.course_id = l.prerequisite_course_id`
const listCourses = selectCourses + ` ORDER BY c.course_number, p.course_number`
const getCourse = selectCourses + ` WHERE c.course_number = $1 ORDER BY p.course_number`
