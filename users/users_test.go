package users_test

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/go-account-dashboard/internal/utils"
	"github.com/jrsteele09/go-account-dashboard/users"
	"github.com/stretchr/testify/require"
)

func TestUser_JSONShape(t *testing.T) {
	var u users.User
	err := json.Unmarshal([]byte(`{"id":"u-1","email":"a@example.com","name":"Ada","createdAt":"2025-01-02T00:00:00Z"}`), &u)
	require.NoError(t, err)
	require.Equal(t, "u-1", u.ID)
	require.Nil(t, u.Avatar)
	require.Equal(t, "2025-01-02T00:00:00Z", u.CreatedAt)

	u.Avatar = utils.Ptr("https://cdn.example.com/a.png")
	out, err := json.Marshal(u)
	require.NoError(t, err)
	require.Contains(t, string(out), `"avatar":"https://cdn.example.com/a.png"`)
}

func TestUser_DisplayName(t *testing.T) {
	var nilUser *users.User
	require.Equal(t, "", nilUser.DisplayName())
	require.Equal(t, "a@example.com", (&users.User{Email: "a@example.com"}).DisplayName())
	require.Equal(t, "Ada", (&users.User{Email: "a@example.com", Name: "Ada"}).DisplayName())
}

func TestRegisterForm_Validation(t *testing.T) {
	v := validator.New()

	valid := users.RegisterForm{
		Name:            "Ada",
		Email:           "a@example.com",
		Password:        "Secret123",
		ConfirmPassword: "Secret123",
	}
	require.NoError(t, v.Struct(valid))
	require.Equal(t, users.RegisterRequest{Email: "a@example.com", Password: "Secret123", Name: "Ada"}, valid.Request())

	t.Run("passwords differ", func(t *testing.T) {
		f := valid
		f.ConfirmPassword = "Other123"
		require.Error(t, v.Struct(f))
	})

	t.Run("missing name", func(t *testing.T) {
		f := valid
		f.Name = ""
		require.Error(t, v.Struct(f))
	})

	t.Run("bad email", func(t *testing.T) {
		f := valid
		f.Email = "not-an-email"
		require.Error(t, v.Struct(f))
	})
}

func TestProviders(t *testing.T) {
	list := users.Providers()
	require.Len(t, list, 2)
	require.Equal(t, "github", list[0].ID)
	require.Equal(t, "google", list[1].ID)

	p, ok := users.Provider("google")
	require.True(t, ok)
	require.Equal(t, "Google", p.Name)

	_, ok = users.Provider("myspace")
	require.False(t, ok)
}

func TestUser_AvatarURL(t *testing.T) {
	var nilUser *users.User
	require.Equal(t, "", nilUser.AvatarURL())
	require.Equal(t, "", (&users.User{}).AvatarURL())
	require.Equal(t, "https://cdn.example.com/a.png", (&users.User{Avatar: utils.Ptr("https://cdn.example.com/a.png")}).AvatarURL())
}
