package handlers

import (
	"fmt"
	"time"

	"kintree/internal/models"
)

// dateFormat is the wire format for birth and death dates
const dateFormat = "2006-01-02"

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type createTreeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Privacy     string `json:"privacy"`
}

type treeResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	OwnerUserID int64  `json:"ownerUserId"`
	Privacy     string `json:"privacy"`
}

type memberPayload struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DisplayName string `json:"displayName"`
	Gender      string `json:"gender"`
	BirthDate   string `json:"birthDate"` // YYYY-MM-DD
	DeathDate   string `json:"deathDate"`
	Bio         string `json:"bio"`
	ImageURL    string `json:"imageUrl"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
}

type memberResponse struct {
	ID          int64  `json:"id"`
	TreeID      int64  `json:"treeId"`
	UserID      *int64 `json:"userId,omitempty"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DisplayName string `json:"displayName"`
	Gender      string `json:"gender"`
	BirthDate   string `json:"birthDate,omitempty"`
	DeathDate   string `json:"deathDate,omitempty"`
	Bio         string `json:"bio,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	IsPending   bool   `json:"isPending"`
}

type addRelationshipRequest struct {
	FromMemberID int64  `json:"fromMemberId"`
	ToMemberID   int64  `json:"toMemberId"`
	Type         string `json:"type"`
}

type relationshipResponse struct {
	ID           int64  `json:"id"`
	TreeID       int64  `json:"treeId"`
	FromMemberID int64  `json:"fromMemberId"`
	ToMemberID   int64  `json:"toMemberId"`
	Type         string `json:"type"`
}

type inviteMemberRequest struct {
	Email   string        `json:"email"`
	Role    string        `json:"role"`
	Profile memberPayload `json:"profile"`
}

type invitationResponse struct {
	ID        int64  `json:"id"`
	TreeID    int64  `json:"treeId"`
	MemberID  *int64 `json:"memberId,omitempty"`
	Token     string `json:"token"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	ExpiresAt string `json:"expiresAt"`
}

type nodeResponse struct {
	MemberID         int64   `json:"memberId"`
	DisplayName      string  `json:"displayName"`
	FirstName        string  `json:"firstName"`
	LastName         string  `json:"lastName"`
	Gender           string  `json:"gender"`
	BirthDate        string  `json:"birthDate,omitempty"`
	DeathDate        string  `json:"deathDate,omitempty"`
	ImageURL         string  `json:"imageUrl,omitempty"`
	IsPending        bool    `json:"isPending"`
	Parents          []int64 `json:"parents"`
	Children         []int64 `json:"children"`
	Siblings         []int64 `json:"siblings"`
	Spouses          []int64 `json:"spouses"`
	IsBloodRelation  bool    `json:"isBloodRelation"`
	HasHiddenSubtree bool    `json:"hasHiddenSubtree"`
}

type treeWithNodesResponse struct {
	Tree  treeResponse   `json:"tree"`
	Nodes []nodeResponse `json:"nodes"`
}

func (p memberPayload) toProfile() (models.MemberProfile, error) {
	profile := models.MemberProfile{
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		DisplayName: p.DisplayName,
		Gender:      p.Gender,
		Bio:         p.Bio,
		ImageURL:    p.ImageURL,
		Email:       p.Email,
		Phone:       p.Phone,
	}

	var err error
	if profile.BirthDate, err = parseDate(p.BirthDate); err != nil {
		return profile, fmt.Errorf("invalid birthDate: %w", err)
	}
	if profile.DeathDate, err = parseDate(p.DeathDate); err != nil {
		return profile, fmt.Errorf("invalid deathDate: %w", err)
	}
	return profile, nil
}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateFormat, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateFormat)
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name}
}

func toTreeResponse(t *models.FamilyTree) treeResponse {
	return treeResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		OwnerUserID: t.OwnerUserID,
		Privacy:     t.Privacy,
	}
}

func toMemberResponse(m *models.Member) memberResponse {
	return memberResponse{
		ID:          m.ID,
		TreeID:      m.TreeID,
		UserID:      m.UserID,
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		DisplayName: m.DisplayName,
		Gender:      m.Gender,
		BirthDate:   formatDate(m.BirthDate),
		DeathDate:   formatDate(m.DeathDate),
		Bio:         m.Bio,
		ImageURL:    m.ImageURL,
		Email:       m.Email,
		Phone:       m.Phone,
		IsPending:   m.IsPending,
	}
}

func toRelationshipResponse(r *models.Relationship) relationshipResponse {
	return relationshipResponse{
		ID:           r.ID,
		TreeID:       r.TreeID,
		FromMemberID: r.FromMemberID,
		ToMemberID:   r.ToMemberID,
		Type:         string(r.Type),
	}
}

func toInvitationResponse(i *models.Invitation) invitationResponse {
	return invitationResponse{
		ID:        i.ID,
		TreeID:    i.TreeID,
		MemberID:  i.MemberID,
		Token:     i.Token,
		Email:     i.Email,
		Role:      i.Role,
		ExpiresAt: i.ExpiresAt.Format(time.RFC3339),
	}
}

func toNodeResponse(n *models.TreeNode) nodeResponse {
	return nodeResponse{
		MemberID:         n.MemberID,
		DisplayName:      n.DisplayName,
		FirstName:        n.FirstName,
		LastName:         n.LastName,
		Gender:           n.Gender,
		BirthDate:        formatDate(n.BirthDate),
		DeathDate:        formatDate(n.DeathDate),
		ImageURL:         n.ImageURL,
		IsPending:        n.IsPending,
		Parents:          emptyIfNil(n.Parents),
		Children:         emptyIfNil(n.Children),
		Siblings:         emptyIfNil(n.Siblings),
		Spouses:          emptyIfNil(n.Spouses),
		IsBloodRelation:  n.IsBloodRelation,
		HasHiddenSubtree: n.HasHiddenSubtree,
	}
}

// emptyIfNil keeps adjacency arrays as [] rather than null on the wire
func emptyIfNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
