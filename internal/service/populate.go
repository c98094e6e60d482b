package service

import (
	"context"
	"fmt"

	"github.com/Volatile-Viv/Try-Karo/internal/domain"
	"github.com/Volatile-Viv/Try-Karo/internal/repository"
)

// userFields picks which profile fields a populated reference exposes.
type userFields func(u *domain.User) *domain.UserSummary

func makerFields(u *domain.User) *domain.UserSummary {
	return &domain.UserSummary{ID: u.ID, Name: u.Name, Avatar: u.Avatar, Bio: u.Bio}
}

func basicFields(u *domain.User) *domain.UserSummary {
	return &domain.UserSummary{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}

func commenterFields(u *domain.User) *domain.UserSummary {
	return &domain.UserSummary{ID: u.ID, Name: u.Name, Avatar: u.Avatar, Role: u.Role}
}

// userIndex resolves user ids loaded in one batch.
type userIndex map[string]*domain.User

func loadUsers(ctx context.Context, users repository.UserRepository, ids []string) (userIndex, error) {
	ids = uniqueIDs(ids)
	idx := make(userIndex, len(ids))
	if len(ids) == 0 {
		return idx, nil
	}

	found, err := users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	for i := range found {
		idx[found[i].ID] = &found[i]
	}
	return idx, nil
}

// summary returns the projected user, or a bare reference when the user no
// longer exists.
func (idx userIndex) summary(id string, fields userFields) *domain.UserSummary {
	if u, ok := idx[id]; ok {
		return fields(u)
	}
	return &domain.UserSummary{ID: id}
}

// productIndex resolves product ids loaded in one batch.
type productIndex map[string]*domain.Product

func loadProducts(ctx context.Context, products repository.ProductRepository, ids []string) (productIndex, error) {
	ids = uniqueIDs(ids)
	idx := make(productIndex, len(ids))
	if len(ids) == 0 {
		return idx, nil
	}

	found, err := products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	for i := range found {
		idx[found[i].ID] = &found[i]
	}
	return idx, nil
}

func (idx productIndex) summary(id string) *domain.ProductSummary {
	if p, ok := idx[id]; ok {
		return p.Summary()
	}
	return &domain.ProductSummary{ID: id}
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// reviewViews builds views for reviews. Products are left as bare
// references when products is nil. Comment authors are resolved with
// commenterFields.
func reviewViews(reviews []domain.Review, users userIndex, products productIndex) []domain.ReviewView {
	views := make([]domain.ReviewView, 0, len(reviews))
	for _, rv := range reviews {
		view := domain.ReviewView{
			Review:   rv,
			Tester:   users.summary(rv.Tester, basicFields),
			Product:  products.summary(rv.Product),
			Comments: make([]domain.CommentView, 0, len(rv.Comments)),
		}
		for _, c := range rv.Comments {
			view.Comments = append(view.Comments, domain.CommentView{
				Comment: c,
				User:    users.summary(c.User, commenterFields),
			})
		}
		views = append(views, view)
	}
	return views
}

// reviewUserIDs collects tester and comment author ids.
func reviewUserIDs(reviews []domain.Review) []string {
	var ids []string
	for _, rv := range reviews {
		ids = append(ids, rv.Tester)
		for _, c := range rv.Comments {
			ids = append(ids, c.User)
		}
	}
	return ids
}
