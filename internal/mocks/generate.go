package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/user --output domain/user --outpkg usermock --filename repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name IdentityProvider --dir ../domain/user --output domain/user --outpkg usermock --filename identity_provider_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/insight --output domain/insight --outpkg insightmock --filename repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Generator --dir ../domain/insight --output domain/insight --outpkg insightmock --filename generator_mock.go
