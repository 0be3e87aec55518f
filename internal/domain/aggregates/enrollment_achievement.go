package aggregates

var EnrollmentAchievementContract = Contract{
	Name:             "Outcomes.EnrollmentAchievementAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes: "Owns the derived course-outcome and program-outcome achievement rows of one enrollment. " +
		"Every recompute of an enrollment runs in one transaction holding the enrollment row lock, " +
		"writing course-outcome rows before the program-outcome rows computed from them.",
}
