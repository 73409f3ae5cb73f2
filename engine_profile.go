package authcore

import (
	"context"
)

// GetAccount loads an account by id.
func (e *Engine) GetAccount(ctx context.Context, id string) (*Account, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	acct, err := e.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return acct, nil
}

// UpdateProfile changes the account's display names. Empty fields keep
// their current value.
func (e *Engine) UpdateProfile(ctx context.Context, id, firstName, lastName string) (*Account, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	acct, err := e.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	fields := map[string]string{}
	if firstName != "" {
		if len(firstName) < minNameLength || len(firstName) > maxNameLength {
			fields["first_name"] = "must be between 3 and 255 characters"
		} else {
			acct.FirstName = firstName
		}
	}
	if lastName != "" {
		if len(lastName) < minNameLength || len(lastName) > maxNameLength {
			fields["last_name"] = "must be between 3 and 255 characters"
		} else {
			acct.LastName = lastName
		}
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if err := e.accounts.Update(ctx, acct); err != nil {
		return nil, mapStoreErr(err)
	}

	e.emitAudit(ctx, auditOpProfileUpdate, true, acct.ID, maskEmail(acct.Email), nil, nil)

	return acct, nil
}

// ChangePassword replaces the password after checking the current one. The
// refresh credential is revoked so other sessions must log in again.
func (e *Engine) ChangePassword(ctx context.Context, id, current, next, confirm string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	acct, err := e.accounts.GetByID(ctx, id)
	if err != nil {
		return mapStoreErr(err)
	}

	ok, err := e.hasher.Verify(current, acct.Password)
	if err != nil {
		return mapStoreErr(err)
	}
	if !ok {
		e.emitAudit(ctx, auditOpPasswordChange, false, acct.ID, maskEmail(acct.Email), ErrInvalidCredentials, nil)
		return ErrInvalidCredentials
	}

	if err := validateNewPassword(next, confirm, e.config.Password.MinLength); err != nil {
		return err
	}

	hash, err := e.hasher.Hash(next)
	if err != nil {
		return err
	}

	acct.Password = hash
	acct.RefreshToken = ""
	if err := e.accounts.Update(ctx, acct); err != nil {
		return mapStoreErr(err)
	}

	e.emitAudit(ctx, auditOpPasswordChange, true, acct.ID, maskEmail(acct.Email), nil, nil)

	return nil
}

// DeleteAccount destroys an account. Only admins may call it, and not on
// themselves.
func (e *Engine) DeleteAccount(ctx context.Context, callerID, targetID string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	caller, err := e.accounts.GetByID(ctx, callerID)
	if err != nil {
		return mapStoreErr(err)
	}
	if caller.Role != RoleAdmin {
		e.emitAudit(ctx, auditOpAccountDelete, false, callerID, "", ErrForbidden, nil)
		return ErrForbidden
	}
	if callerID == targetID {
		return ErrForbidden
	}

	target, err := e.accounts.GetByID(ctx, targetID)
	if err != nil {
		return mapStoreErr(err)
	}

	if err := e.accounts.Delete(ctx, target.ID); err != nil {
		return mapStoreErr(err)
	}

	e.emitAudit(ctx, auditOpAccountDelete, true, callerID, maskEmail(target.Email), nil,
		map[string]string{"target": target.ID})

	return nil
}

// TouchLastSeen records activity on the account. Missing accounts are
// ignored; this is called on every authenticated request.
func (e *Engine) TouchLastSeen(ctx context.Context, id string) {
	if e == nil {
		return
	}

	acct, err := e.accounts.GetByID(ctx, id)
	if err != nil {
		return
	}

	acct.LastSeen = e.now()
	_ = e.accounts.Update(ctx, acct)
}
