package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/career-coach/internal/domain/user"
)

type UserRepository struct {
	access access
}

func (r *UserRepository) GetByExternalID(_ context.Context, externalID string) (user.User, bool, error) {
	var (
		out   user.User
		found bool
	)
	r.access.read(func(st *state) {
		id, ok := st.userByExternal[externalID]
		if !ok {
			return
		}
		out, found = cloneUser(st.users[id]), true
	})
	return out, found, nil
}

func (r *UserRepository) Create(_ context.Context, u user.User) (user.User, bool, error) {
	var (
		out     user.User
		created bool
		err     error
	)
	r.access.write(func(st *state) {
		if existingID, ok := st.userByExternal[u.ExternalID]; ok {
			out = cloneUser(st.users[existingID])
			return
		}
		if _, ok := st.users[u.ID]; ok {
			err = fmt.Errorf("user id %s already exists", u.ID)
			return
		}
		st.users[u.ID] = cloneUser(u)
		st.userByExternal[u.ExternalID] = u.ID
		out, created = cloneUser(u), true
	})
	return out, created, err
}

func (r *UserRepository) UpdateProfile(_ context.Context, id string, profile user.Profile) (user.User, error) {
	var (
		out user.User
		err error
	)
	now := time.Now().UTC()
	r.access.write(func(st *state) {
		u, ok := st.users[id]
		if !ok {
			err = fmt.Errorf("user %s not found", id)
			return
		}
		u.Industry = profile.Industry
		u.Experience = cloneInt(profile.Experience)
		u.Bio = profile.Bio
		u.Skills = append([]string{}, profile.Skills...)
		u.UpdatedAt = now
		st.users[id] = u
		out = cloneUser(u)
	})
	return out, err
}

func cloneUser(u user.User) user.User {
	copied := u
	copied.Skills = append([]string(nil), u.Skills...)
	copied.Experience = cloneInt(u.Experience)
	if u.ImageURL != nil {
		v := *u.ImageURL
		copied.ImageURL = &v
	}
	return copied
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
