package roster

// Bundled sample collections, substituted when a source table is empty.

func SampleStudents() []Student {
	return []Student{
		{StudentID: "S001", StudentName: "Shwe Sin Phoo", Email: "shwesin@gmail.com", Phone: "0912345678"},
		{StudentID: "S002", StudentName: "May Thu Thu Kyaw", Email: "maythu@gmail.com", Phone: "0912345679"},
		{StudentID: "S003", StudentName: "Kyaw Kyaw", Email: "kyawkyaw@gmail.com", Phone: "0912345680"},
	}
}

func SampleTests() []TestResult {
	return []TestResult{
		{No: 5, Name: "Shwe Sin Phoo", Q1: 20, Q2: 18, Q3: 20, Q4: 20, Q5: 20, Total: 98},
		{No: 4, Name: "May Thu Thu Kyaw", Q1: 15, Q2: 10, Q3: 12, Q4: 14, Q5: 8, Total: 59},
		{No: 3, Name: "Kyaw Kyaw", Q1: 20, Q2: 20, Q3: 20, Q4: 15, Q5: 18, Total: 93},
	}
}

func SampleAttendance() []AttendanceEntry {
	return []AttendanceEntry{
		{
			No: 4, Name: "May Thu Thu Kyaw", Date: "2025-04-07", Attendance: AttendanceClass,
			AssStatus: "Yes", AssTime: "Yes", Question: "Yes", Desc: "Yes", ArrivalTime: "Arrive", Mark: 30,
		},
		{
			No: 4, Name: "May Thu Thu Kyaw", Date: "2025-04-08", Attendance: AttendanceAbsent,
			AssStatus: "No", AssTime: "No", Question: "No", Desc: "No", ArrivalTime: "None", Mark: 0,
		},
		{
			No: 5, Name: "Shwe Sin Phoo", Date: "2025-04-07", Attendance: AttendanceClass,
			AssStatus: "Yes", AssTime: "Yes", Question: "Yes", Desc: "Yes", ArrivalTime: "Arrive", Mark: 30,
		},
	}
}

// SampleSnapshot is the initial state before any sync.
func SampleSnapshot() Snapshot {
	return Snapshot{
		Students:   SampleStudents(),
		Tests:      SampleTests(),
		Attendance: SampleAttendance(),
	}
}
