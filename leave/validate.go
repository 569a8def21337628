/*
validate.go - The submission rule pipeline

PURPOSE:
  Pure, fail-fast validation of a draft request against the leave-type
  policy and a balance snapshot. The first failing rule wins; the fixed
  order matters because each check assumes the prior ones passed:

    1. Field completeness  -> MissingFields
    2. Date validity       -> InvalidDateRange
    3. Advance notice      -> InsufficientNotice(required, actual)
    4. Max consecutive days-> DurationExceeded(max, requested)
    5. Balance sufficiency -> InsufficientBalance(remaining, requested)
    6. Document requirement-> DocumentRequired

  "today" is an explicit parameter so business-rule tests are deterministic;
  nothing here reads the ambient clock.

  Passing validation is necessary but not sufficient: the balance snapshot
  may be stale by the time the hold is placed. Lifecycle.Submit pairs this
  pipeline with Ledger.Reserve, whose atomic re-check closes that race.
*/
package leave

import "strings"

// ValidateDraft runs the full rule pipeline. It returns nil when the draft
// is acceptable, otherwise the first failing rule's typed error.
func ValidateDraft(draft Draft, policy LeaveType, balance Balance, today Date) error {
	if err := validateShape(draft); err != nil {
		return err
	}

	total := draft.TotalDays()

	// 3. Advance notice. Actual may be zero or negative for requests
	// starting today or in the past.
	actual := DaysBetween(today, draft.StartDate)
	if actual < policy.MinAdvanceNoticeDays {
		return &InsufficientNoticeError{
			RequiredDays: policy.MinAdvanceNoticeDays,
			ActualDays:   actual,
		}
	}

	// 4. Consecutive-day cap. Zero means unlimited.
	if policy.MaxConsecutiveDays > 0 && total.GreaterThan(DaysFromInt(policy.MaxConsecutiveDays)) {
		return &DurationExceededError{
			MaxDays:   policy.MaxConsecutiveDays,
			Requested: total,
		}
	}

	// 5. Balance sufficiency against the snapshot.
	if balance.RemainingDays().LessThan(total) {
		return &InsufficientBalanceError{
			UserID:    balance.UserID,
			TypeCode:  balance.TypeCode,
			Year:      balance.Year,
			Remaining: balance.RemainingDays(),
			Requested: total,
		}
	}

	// 6. Document requirement, possibly duration-conditional per type.
	if policy.DocumentRequiredFor(total) && strings.TrimSpace(draft.DocumentURL) == "" {
		return &DocumentRequiredError{
			TypeCode:      policy.Code,
			ThresholdDays: policy.DocumentAfterDays,
			Requested:     total,
		}
	}

	return nil
}

// validateShape covers rules 1 and 2, which need neither policy nor balance.
// Lifecycle.Submit runs this before touching the store so malformed drafts
// never provision balance rows.
func validateShape(draft Draft) error {
	var missing []string
	if strings.TrimSpace(string(draft.TypeCode)) == "" {
		missing = append(missing, "leave_type")
	}
	if draft.StartDate.IsZero() {
		missing = append(missing, "start_date")
	}
	if draft.EndDate.IsZero() {
		missing = append(missing, "end_date")
	}
	if strings.TrimSpace(draft.Reason) == "" {
		missing = append(missing, "reason")
	}
	if draft.IsHalfDay && !validHalfDaySlot(draft.HalfDaySlot) {
		missing = append(missing, "half_day_type")
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}

	if draft.EndDate.Before(draft.StartDate) {
		return &InvalidDateRangeError{StartDate: draft.StartDate, EndDate: draft.EndDate}
	}
	return nil
}

func validHalfDaySlot(s *HalfDaySlot) bool {
	return s != nil && (*s == FirstHalf || *s == SecondHalf)
}
